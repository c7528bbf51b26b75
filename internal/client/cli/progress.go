package cli

import (
	"io"

	"github.com/mattn/go-colorable"
	"github.com/schollz/progressbar/v3"

	"github.com/dmitrijs2005/gophmarket/internal/client/services"
)

// progressWriter is where the search bar renders. It is a variable so tests
// can capture it.
var progressWriter = func() io.Writer { return colorable.NewColorableStderr() }

// scanProgress draws a bar while the search scanner walks the token ids.
// The bar is created lazily because the total is only known once the scan
// has read the supply.
type scanProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newScanProgress(w io.Writer) *scanProgress {
	return &scanProgress{w: w}
}

func (p *scanProgress) update(done, total uint64) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions64(int64(total),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan]Scanning tokens[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionSetRenderBlankState(false),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set64(int64(done))
}

// done removes the bar from the terminal, whether or not the scan reached
// the last id.
func (p *scanProgress) done() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Clear()
	p.bar = nil
}

// searchProgress returns the callback handed to the scanner and a cleanup
// func. Without a terminal there is nothing to draw.
func (a *App) searchProgress() (services.ProgressFunc, func()) {
	if !a.progress {
		return nil, func() {}
	}
	p := newScanProgress(progressWriter())
	return p.update, p.done
}

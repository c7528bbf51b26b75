// Package buildinfo carries values injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/gophmarket/internal/buildinfo.ContractAddress=0x..."
//
// ContractAddress is the marketplace contract the binary is built for; the
// client treats it as immutable for the process lifetime.
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"

	ContractAddress = ""
)

// PrintBuildData writes the build banner to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
	if ContractAddress != "" {
		fmt.Fprintf(w, "Marketplace contract: %s\n", ContractAddress)
	}
}

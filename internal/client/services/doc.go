// Package services contains the application services of the market client:
// the wallet session lifecycle, the transaction orchestrator, the derived
// listing views and the URI search.
//
// Services share one *models.Session created at startup. Only the session
// service changes it; everyone else reads snapshots.
package services

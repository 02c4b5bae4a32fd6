/*
main.go - seasonctl, the command-line season planner

PURPOSE:
  Runs projections and season maintenance from a terminal, either against
  the server's SQLite database or against values given on the command line.

COMMANDS:
  project    Project a stored season (--season / --start-year) or ad-hoc
             inputs (--buffer, --earned, --extra, --rules, --plan)
  seasons    List stored seasons with their remaining days
  rollover   Open the current season from the previous one
  rules      List rule presets

EXAMPLES:
  seasonctl project --plan "4;6;0;0;2,5"
  seasonctl project --db holidays.db --start-year 2025 --date 2025-12-01
  seasonctl seasons --db holidays.db
  seasonctl rollover --db holidays.db --max-carryover 5

SEE ALSO:
  - render.go: Table output
  - cmd/server/main.go: The HTTP server
*/
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Package triage matches ECU diagnostic logs against a catalog of known
// defect signatures and classifies their messages with trained models.
//
// Quick start:
//
//	t, err := triage.New(
//	    triage.WithCatalogFile("data/defects.json"),
//	    triage.WithModelDir("models/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := t.Analyze(ctx, "ecu1.log", text)
//	for _, m := range report.Matches {
//	    fmt.Println(m.DefectID, m.Team)
//	}
//
// A model that has not been trained yet does not stop an analysis: the
// report carries the rule-based matches and Analyze returns an error
// wrapping ErrModelUnavailable. A Triage is safe for concurrent use.
package triage

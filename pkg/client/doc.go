// Package client is the TuniGuard Go SDK.
//
// It wraps the HTTP API: submitting messages for scam classification,
// recording what the user did with them, and reading the threat catalog,
// aggregated intel and analytics.
//
// # Logging in
//
// When the server has authentication enabled, every user route needs a
// session token. Login stores the returned token on the client:
//
//	c := client.MustNew("http://localhost:8080")
//	sess, err := c.Login(ctx, "amira_sfax", "tuniguard_dev")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A token obtained elsewhere (for example printed by cmd/seed) can be passed
// up front with WithBearerToken.
//
// # Scanning a message
//
//	res, err := c.Scan(ctx, client.ScanRequest{
//	    UserID:      sess.UserID,
//	    Content:     "Votre colis est bloqué, payez 2 DT: http://bit.ly/x",
//	    ContentType: "sms",
//	})
//	if res.ThreatDetected {
//	    fmt.Println(*res.ThreatType, res.Advice)
//	}
//
// Failures other than 404 are returned as *APIError. Temporary reports
// whether a retry may succeed (rate limiting, classifier outage, or a scan
// that lost a write conflict).
//
// # Catalog reads
//
// The catalog changes rarely; WithCacheTTL caches ListThreats and GetThreat
// responses in memory:
//
//	c, _ := client.New(baseURL, client.WithCacheTTL(5*time.Minute))
//	threats, _ := c.ListThreats(ctx, "SMS", "High")
package client

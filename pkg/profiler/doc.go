// Package profiler provides live, opt-in call-level instrumentation for Go programs.
//
// Functions that should be profiled are published in a Scope, an explicit
// indirection table that call sites dispatch through. The profiler rebinds a
// symbol to a timing wrapper while it is enabled and restores the original
// binding when it is disabled, so call sites never change:
//
//	geo := profiler.NewScope("geo")
//	geo.Define("FetchLinks", fetchLinks)
//
//	p := profiler.New(profiler.Config{Logger: logger})
//	defer p.Close()
//
//	catalog := profiler.NewCatalog(geo)
//	targets, _ := profiler.NewResolver(catalog, logger).Load("targets.txt")
//	_ = p.Enable(targets)
//
//	// Calls through the scope are now timed and counted.
//	_, _ = geo.Call(ctx, "FetchLinks", "31415926")
//
//	fmt.Print(p.Report())
//
// Operators can drive a running profiler through a CommandLoop reading the
// commands "start", "stop" and "results" from a Console.
//
// Instrumentation never changes what a target returns: results, errors and
// panics reach the caller exactly as the original produced them. Only
// successful calls are counted unless Config.CountFailures is set.
package profiler

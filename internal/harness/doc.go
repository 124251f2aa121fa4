// Package harness provides the process-level fixtures for exercising the
// nest package manager end to end: an ephemeral repository server, the
// client configuration artifact pointing at it, and subprocess wrappers
// for the nest and finest binaries.
//
// # Fixture Lifecycle
//
// A scenario acquires its resources in a fixed order and releases them in
// reverse, no matter how it exits:
//
//  1. StartServer launches nest-server in a throwaway workspace seeded
//     with the scenario's packages and blocks in WaitReady until the
//     server accepts connections.
//  2. WriteConfig renders the client configuration pointing at the
//     server's mirror URL. The file is written atomically so a
//     half-written configuration is never observable.
//  3. The CLI wrappers invoke the binary under test and hand back a
//     Result carrying the exit code and captured output. A non-zero exit
//     is an observation, not an error.
//
// Teardown is idempotent: Config.Remove and Server.Stop may be called on
// every exit path, including after a failure, and later calls return the
// first outcome.
//
// # Error Classes
//
// Failures before the first CLI invocation (server startup, readiness,
// config generation) surface as *SetupError: the binary under test was
// never exercised, so the scenario is an error rather than a failure.
// Failures while releasing resources surface as *TeardownError and are
// reported alongside, never instead of, an earlier failure.
//
// # Usage Example
//
//	srv, err := harness.StartServer(ctx, harness.ServerOptions{
//		Binary:   serverBin,
//		Packages: []*npf.Package{pkg},
//	})
//	if err != nil {
//		return err
//	}
//	defer srv.Stop()
//
//	if err := srv.WaitReady(ctx); err != nil {
//		return err
//	}
//
//	cfg, err := harness.WriteConfig(dir, harness.ConfigForServer(srv))
//	if err != nil {
//		return err
//	}
//	defer cfg.Remove()
//
//	result, err := harness.NewNest(nestBin, harness.WithConfig(cfg.Path())).Pull(ctx)
//	if err != nil {
//		return err
//	}
//	if !result.Success() {
//		return fmt.Errorf("pull failed: %s", result.Diagnose(0))
//	}
package harness

// Package server runs an http.Handler with graceful shutdown.
//
// Config mirrors the deployment settings: address, port and an optional
// certificate/key pair. Both certificate fields select TLS, neither selects
// plaintext, and only one of them is a configuration error.
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := server.Listen(ctx, cfg, dispatcher, server.WithLogger(log)); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Server.Run returns a func() error suitable for errgroup.
package server

// Package logger provides small helpers on top of log/slog: nil-safe
// attribute constructors for the values the router and its collaborators log,
// and a constructor that builds a text or JSON logger from Config.
//
//	log, err := logger.New(logger.Config{Level: "debug", Format: "json"})
//	if err != nil {
//		return err
//	}
//	log.Error("handler failed",
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.Status(500),
//		logger.Error(err),
//	)
//
// Components across the module take a *slog.Logger through a WithLogger
// option and default to Discard.
package logger

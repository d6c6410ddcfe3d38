// Package logger provides structured logging over zerolog.
//
// Components receive a *Logger at construction and tag themselves with
// WithComponent. Fields are passed as maps, built with Fields, ErrorFields
// or DurationFields.
//
//	logging:
//	  level: "info"
//	  format: "json"
//
//	log := logger.New(&cfg.Logging, "vidscribe").WithComponent("pipeline")
//	log.Info("job done", logger.Fields("job_id", id))
package logger

// Package logger provides adapters for popular logger libraries to work with hybtree's Logger interface.
//
// The adapters allow you to use your existing logger with hybtree without writing boilerplate.
// Note that the standard library's slog.Logger already implements hybtree.Logger directly.
//
// Example with zap:
//
//	import (
//	    "github.com/hybtree/hybtree"
//	    "github.com/hybtree/hybtree/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    tree := hybtree.New[int, string](
//	        hybtree.WithLogger(logger.NewZap(zapLogger)),
//	    )
//	    defer tree.Close()
//	}
//
package logger

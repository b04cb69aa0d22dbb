/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	logOut  io.Writer = os.Stdout
	logOnce sync.Once
	logger  zerolog.Logger
)

func consoleLogger() zerolog.Logger {
	logOnce.Do(func() {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        logOut,
			TimeFormat: logDate,
		}).With().Timestamp().Logger()
	})

	return logger
}

// coreLogger is handed to the game engine for its fail-soft paths.
func coreLogger(cfg *Config) zerolog.Logger {
	if !cfg.verbose {
		return zerolog.Nop()
	}

	return consoleLogger()
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	l := consoleLogger()
	l.Info().Msgf(format, args...)
}

// logErr is not gated on verbose: server failures always print.
func logErr(err error) {
	l := consoleLogger()
	l.Error().Err(err).Msg("ERROR")
}

func newPage(cfg *Config, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=%q>%s</a></body></html>", cfg.prefix+"/", body))

	return htmlBody.String()
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/promptphone/games/telephone"
)

func homePage(cfg *Config) string {
	var body strings.Builder

	body.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	body.WriteString(getFavicon(cfg))
	body.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	body.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/telephone/app.css">`, cfg.prefix))
	body.WriteString(`<title>promptphone</title></head><body><main class="home">`)
	body.WriteString(`<h1>promptphone</h1>`)
	body.WriteString(`<p>Fill in a mad lib, turn it into a picture, then pass it down the line. `)
	body.WriteString(`Each player only sees the last picture and has a handful of words to describe it.</p>`)
	body.WriteString(`<ul class="modes">`)
	for _, m := range telephone.Modes() {
		body.WriteString(fmt.Sprintf(`<li><strong>%s</strong> %s</li>`, m.Name, m.Description))
	}
	body.WriteString(`</ul>`)
	body.WriteString(fmt.Sprintf(`<a class="button" href="%s/telephone">Start a new game</a>`, cfg.prefix))
	body.WriteString(`</main></body></html>`)

	return body.String()
}

func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		data := homePage(cfg)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Home page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// serveGamePage sends the client for one game. Every game id shares the same
// page; the script reads the id back out of the URL.
func serveGamePage(cfg *Config, game string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/" + game + "/index.html")
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

const robots = `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /

User-agent: *
Disallow: /telephone/
`

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(robots)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(robots))
		if err != nil {
			errs <- err

			return
		}
	}
}

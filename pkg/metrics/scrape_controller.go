package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flyroom/flyroom/pkg/application"
)

// ScrapeController exposes the default prometheus registry, which the request
// metrics middleware populates. The path is kept off the API surface so the
// gateway can exclude it from routing.
type ScrapeController struct {
	path string
}

func NewScrapeController(path string) application.Controller {
	if path == "" {
		path = "/debug/prometheus"
	}
	return &ScrapeController{path: path}
}

func (c *ScrapeController) Key() string {
	return c.path
}

func (c *ScrapeController) Register(r *mux.Router) {
	r.Handle(c.path, promhttp.Handler()).Methods(http.MethodGet)
}

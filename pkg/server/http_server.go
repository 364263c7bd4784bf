package server

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/flyroom/flyroom/pkg/application"
)

func NewHTTPServer(app application.Application) *HTTPServer {
	return &HTTPServer{
		Controllers:  app.Controllers(),
		Middlewares:  app.Middleware(),
		AllowOrigins: app.Config().AllowOrigins,
	}
}

type HTTPServer struct {
	Controllers  []application.Controller
	Middlewares  []mux.MiddlewareFunc
	AllowOrigins []string
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.Middlewares...)
	for _, controller := range s.Controllers {
		controller.Register(r)
	}
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	var handler http.Handler = s.Router()
	if len(s.AllowOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   s.AllowOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(handler)
	}
	return gziphandler.GzipHandler(handler)
}

func (s *HTTPServer) Start(socketAddress string) error {
	return http.ListenAndServe(socketAddress, s.Handler())
}

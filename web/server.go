package web

import (
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/config"
	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/ops/export"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/status"
)

// Server exposes one scene document over http. Handlers are serialized, the
// scene is not safe for concurrent use.
type Server struct {
	lock     sync.Mutex
	ctx      *scene.Context
	cfg      *config.Config
	exporter export.Exporter
	hub      *status.Hub
	upgrader websocket.Upgrader
}

func NewServer(ctx *scene.Context, cfg *config.Config, exporter export.Exporter, hub *status.Hub) *Server {
	if hub == nil {
		hub = status.Default
	}
	return &Server{ctx: ctx, cfg: cfg, exporter: exporter, hub: hub}
}

func (s *Server) Handler(webPath string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/json/scene", s.HandlerAjaxScene).Methods("GET")
	r.HandleFunc("/json/classify", s.HandlerAjaxClassify).Methods("GET")
	r.HandleFunc("/json/object/{object}", s.HandlerAjaxObject).Methods("GET")
	r.HandleFunc("/action/split/{object}", s.HandlerActionSplit).Methods("POST")
	r.HandleFunc("/action/tag/{collection}/{type}", s.HandlerActionTag).Methods("POST")
	r.HandleFunc("/action/export", s.HandlerActionExport).Methods("POST")
	r.HandleFunc("/action/save", s.HandlerActionSave).Methods("POST")
	r.HandleFunc("/dump/scene", s.HandlerDumpScene)
	r.HandleFunc("/dump/object/{object}", s.HandlerDumpObject)
	r.HandleFunc("/ws/status", s.HandlerStatus)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(webPath)))
	}

	stdlog := zap.NewStdLog(logger.Named("web"))
	h := handlers.LoggingHandler(stdlog.Writer(), r)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(stdlog))(h)
}

func (s *Server) ListenAndServe(addr string, webPath string) error {
	logger.Named("web").Info("Starting server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler(webPath))
}

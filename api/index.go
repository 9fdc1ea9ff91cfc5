package handler

import (
	"net/http"

	"lendit/config"
	"lendit/di"
	"lendit/shared/logger"
)

func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	service := di.InitializeService()
	service.Adaptor()(w, r)
}

// Package metrics 定义服务暴露给 Prometheus 的计数器。
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photogame_registrations_total",
			Help: "Registered users by role",
		},
		[]string{"role"},
	)
	PhotosUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photogame_photos_uploaded_total",
			Help: "Accepted photos by slot",
		},
		[]string{"tipo"},
	)
	UploadsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photogame_uploads_rejected_total",
			Help: "Rejected upload batches by reason",
		},
		[]string{"reason"},
	)
	PhotosDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "photogame_photos_deleted_total", Help: "Deleted photo records"},
	)
	GamesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "photogame_games_started_total", Help: "Game sessions started"},
	)
	PhotosRevealed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "photogame_photos_revealed_total", Help: "Photos revealed by next"},
	)
)

func init() {
	prometheus.MustRegister(Registrations, PhotosUploaded, UploadsRejected, PhotosDeleted, GamesStarted, PhotosRevealed)
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/blobindexer/syncer/api/http"
)

type QueryController interface {
	GetStatistics(*gin.Context)

	GetSyncState(*gin.Context)

	GetOverallStats(*gin.Context)
	GetDailyStats(*gin.Context)

	GetJobs(*gin.Context)
}

type Server struct {
	listenHost string
	router     *gin.Engine
}

func NewServer(host string) *Server {
	return &Server{listenHost: host, router: gin.Default()}
}

// LimitRate must be called before RegisterRoutes.
// Non-positive rps disables the limit.
func (s *Server) LimitRate(rps, burst int) {
	if rps <= 0 {
		return
	}
	s.router.Use(rateLimit(rps, burst))
}

func (s *Server) RegisterRoutes(t QueryController) {
	base := s.router.Group(basePath)

	base.GET("/statistics", t.GetStatistics)

	base.GET("/sync", t.GetSyncState)

	base.GET("/stats/overall", t.GetOverallStats)
	base.GET("/stats/daily/:kind", t.GetDailyStats)

	base.GET("/jobs", t.GetJobs)

	base.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL(basePath+"/swagger/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1)))

	base.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, basePath+"/swagger/index.html")
	})
}

// Handler is used to serve the routes without listening, e.g. in tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

func (s *Server) Run() error {
	return s.router.Run(s.listenHost)
}

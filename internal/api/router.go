package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/famtree/internal/api/handlers"
	"github.com/your-org/famtree/internal/api/ws"
	"github.com/your-org/famtree/internal/auth"
	"github.com/your-org/famtree/internal/family"
)

type RouterConfig struct {
	JWTSecret string
	JWTIssuer string
	// CORSOrigins empty allows any origin.
	CORSOrigins    []string
	MaxUploadBytes int64
	Service        *family.Service
	Hub            *ws.Hub
	// Checks back /readyz, keyed by dependency name.
	Checks map[string]handlers.Check
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization")
	return cfg
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.Middleware(cfg.JWTSecret, cfg.JWTIssuer))

	// WebSocket
	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	// Family members
	memberH := handlers.NewMemberHandler(cfg.Service)
	members := v1.Group("/family-members")
	members.POST("", memberH.Create)
	members.GET("/my", memberH.List)
	members.GET("/my-tree", memberH.Tree)
	members.GET("/my-tree-paged", memberH.Paged)
	members.POST("/set-partner", memberH.SetPartner)
	members.POST("/clear-partner", memberH.ClearPartner)
	members.POST("/relationships", memberH.CreateRelationship)
	members.GET("/:role", memberH.Get)
	members.POST("/:role", memberH.CreateByRole)
	members.PUT("/:role", memberH.Update)
	members.DELETE("/:role", memberH.Delete)

	// Profiles
	profileH := handlers.NewProfileHandler(cfg.Service)
	v1.GET("/member-profiles/:role", profileH.Get)
	v1.POST("/member-profiles/:role", profileH.Create)
	v1.PUT("/member-profiles/:role", profileH.Update)

	// Media
	mediaH := handlers.NewMediaHandler(cfg.Service, cfg.MaxUploadBytes)
	v1.POST("/media/upload", mediaH.Upload)
	v1.GET("/media", mediaH.List)
	v1.DELETE("/media", mediaH.Delete)
	v1.GET("/media/files/*key", mediaH.File)

	return r, nil
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hrdesk/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	employeeH *EmployeeHandler,
	departmentH *DepartmentHandler,
	leaveH *LeaveHandler,
	dashboardH *DashboardHandler,
	chatH *ChatHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	// El websocket verifica identidad sobre el propio canal (primer frame),
	// no via header, así que queda fuera del middleware JWT.
	r.GET("/chat/ws", chatH.ServeWS)

	api := r.Group("", JWTAuthMiddleware(jwtSvc))
	api.POST("/employees", employeeH.Create)
	api.GET("/employees", employeeH.List)
	api.GET("/employees/:id", employeeH.Get)
	api.POST("/departments", departmentH.Create)
	api.GET("/departments", departmentH.List)
	api.POST("/leaves", leaveH.Submit)
	api.POST("/leaves/:id/decision", leaveH.Decide)
	api.GET("/leaves", leaveH.List)
	api.GET("/dashboard/summary", dashboardH.Summary)
	api.GET("/chat/messages", chatH.ListMessages)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.IsWebsocket() {
			c.Next()
			return
		}
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

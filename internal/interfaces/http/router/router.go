// Package router assembles the gin engine: middleware chain, custom
// validators, and the /api/v1 route tree.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/interfaces/http/handler"
	"github.com/mahallubank/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the API handlers wired into the router
type Handlers struct {
	Members      *handler.MemberHandler
	Transactions *handler.TransactionHandler
	Blocks       *handler.BlockHandler
	Bank         *handler.BankHandler
	Imports      *handler.ImportHandler
	Reports      *handler.ReportHandler
	Overview     *handler.OverviewHandler
}

// Config carries router-level settings
type Config struct {
	Env          string
	AllowOrigins []string
}

// New builds the gin engine with the full middleware chain and route tree
func New(cfg Config, h Handlers, logger *zap.Logger) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidators()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.AllowOrigins),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		members := v1.Group("/members")
		{
			members.GET("", h.Members.List)
			members.POST("", h.Members.Create)
			members.GET("/:id", h.Members.Get)
			members.PUT("/:id", h.Members.Update)
			members.DELETE("/:id", h.Members.Delete)

			members.POST("/:id/transactions", h.Transactions.Create)
			members.PUT("/:id/transactions/:txId", h.Transactions.Update)
			members.POST("/:id/fees/registration", h.Transactions.ChargeRegistrationFee)
			members.POST("/:id/fees/passbook", h.Transactions.ChargePassbookFee)
		}

		admin := v1.Group("/admin-transactions")
		{
			admin.GET("", h.Transactions.ListAdminTransactions)
			admin.DELETE("/:id", h.Transactions.DeleteAdminTransaction)
		}

		blocks := v1.Group("/blocks")
		{
			blocks.GET("", h.Blocks.List)
			blocks.POST("", h.Blocks.Create)
			blocks.DELETE("/:name", h.Blocks.Delete)
			blocks.POST("/:name/clusters", h.Blocks.CreateCluster)
			blocks.DELETE("/:name/clusters/:cluster", h.Blocks.DeleteCluster)
		}

		bank := v1.Group("/bank-transactions")
		{
			bank.GET("", h.Bank.List)
			bank.POST("", h.Bank.Create)
			bank.PUT("/:id", h.Bank.Update)
			bank.DELETE("/:id", h.Bank.Delete)
		}

		imports := v1.Group("/import")
		{
			imports.POST("/members", h.Imports.ImportMembers)
			imports.POST("/transactions", h.Imports.ImportTransactions)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/members", h.Reports.Members)
			reports.GET("/fees", h.Reports.Fees)
			reports.GET("/bank", h.Reports.Bank)
		}

		v1.GET("/overview", h.Overview.Get)
		v1.POST("/settings/reset", h.Members.Reset)
	}

	return engine
}

// registerValidators adds the custom binding validators used by request
// structs
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		return ledger.TransactionType(fl.Field().String()).IsValid()
	})
}

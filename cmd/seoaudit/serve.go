package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upworkmkd/msd-seo-audit/analyzer"
	"github.com/upworkmkd/msd-seo-audit/config"
	"github.com/upworkmkd/msd-seo-audit/crawler"
	"github.com/upworkmkd/msd-seo-audit/fetcher"
	"github.com/upworkmkd/msd-seo-audit/middleware"
	"github.com/upworkmkd/msd-seo-audit/stats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		return runServer(cfg, logger)
	},
}

type analyzeRequest struct {
	URL        string `json:"url" binding:"required,url"`
	Pages      int    `json:"pages"`
	CheckLinks bool   `json:"checkLinks"`
}

func runServer(cfg *config.Config, logger *logrus.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	storage, err := stats.NewStorage(cfg.Server.DataDir)
	if err != nil {
		return err
	}
	defer storage.Shutdown()

	client := fetcher.New(fetcher.Options{
		UserAgent:   cfg.Crawler.UserAgent,
		PageTimeout: cfg.Crawler.PageTimeout,
		RawTimeout:  cfg.Crawler.SitemapTimeout,
	})
	seoAnalyzer := analyzer.New(client, analyzer.Options{
		PageTimeout:    cfg.Crawler.PageTimeout,
		SitemapTimeout: cfg.Crawler.SitemapTimeout,
		CheckLinks:     cfg.Crawler.CheckLinks,
		MaxImages:      cfg.Crawler.MaxImages,
		CacheTTL:       cfg.Crawler.CacheTTL,
	}, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler(logger))
	r.Use(rateLimiter.RateLimit())
	r.Use(corsMiddleware())
	r.Use(middleware.Stats(storage, logger))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/analyze", func(c *gin.Context) {
			var req analyzeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
				return
			}

			maxPages := cfg.Crawler.MaxPages
			if req.Pages > 0 && req.Pages < maxPages {
				maxPages = req.Pages
			}

			runner := crawler.New(seoAnalyzer, crawler.Options{
				MaxPages:       maxPages,
				RequestsPerSec: cfg.Crawler.RequestsPerSec,
			}, logger)

			report, err := runner.Run(c.Request.Context(), req.URL)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			storage.RecordPages(len(report.Pages), 0)
			c.JSON(http.StatusOK, report)
		})

		api.GET("/statistics", func(c *gin.Context) {
			if month := c.Query("month"); month != "" {
				monthly, found := storage.GetMonthlyStats(month)
				if !found {
					c.JSON(http.StatusNotFound, gin.H{"error": "no statistics for " + month})
					return
				}
				c.JSON(http.StatusOK, monthly)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"current": storage.GetCurrentStats(),
				"months":  storage.GetAllMonths(),
			})
		})
	}

	logger.WithField("port", cfg.Server.Port).Info("server starting")
	return r.Run(":" + cfg.Server.Port)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/storage"
	"github.com/yonathanth/betbot-sub000/utils"
)

var store storage.Store

// UseStore injects the persistence gateway the handlers read from.
func UseStore(s storage.Store) {
	store = s
}

// DashboardRoutes mounts the read-only analytics API. Every route requires
// a bearer token minted from the bot's admin panel.
func DashboardRoutes(app *iris.Application) {
	secret := os.Getenv("DASHBOARD_TOKEN_SECRET")

	verifier := jwt.NewVerifier(jwt.HS256, []byte(secret))
	verifier.WithDefaultBlocklist()
	verifyMiddleware := verifier.Verify(func() interface{} {
		return new(utils.DashboardToken)
	})

	api := app.Party("/dashboard")
	api.Use(verifyMiddleware)

	api.Get("/overview", DashboardOverview)
	api.Get("/listings", DashboardListings)
	api.Get("/listings/{id:uint}/clicks", DashboardListingClicks)
	api.Get("/activity", DashboardActivity)
}

const overviewCacheKey = "dashboard:overview"
const overviewCacheTTL = 60 * time.Second

// DashboardOverview - GET /dashboard/overview
// Aggregates are cached in redis for a minute; counting is the expensive
// part and the dashboard polls.
func DashboardOverview(ctx iris.Context) {
	rctx := context.Background()

	if storage.Redis != nil {
		if cached, err := storage.Redis.Get(rctx, overviewCacheKey).Result(); err == nil {
			var stats storage.AggregateStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				ctx.JSON(iris.Map{"data": stats, "meta": iris.Map{"cached": true}})
				return
			}
		}
	}

	stats, err := store.GetAggregateStats(rctx)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	if storage.Redis != nil {
		if raw, err := json.Marshal(stats); err == nil {
			storage.Redis.Set(rctx, overviewCacheKey, raw, overviewCacheTTL)
		}
	}

	ctx.JSON(iris.Map{"data": stats, "meta": iris.Map{"cached": false}})
}

// DashboardListings - GET /dashboard/listings?status=&page=&per_page=
func DashboardListings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Listing{})
	if status := strings.TrimSpace(ctx.URLParamDefault("status", "")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var listings []models.Listing
	if err := query.Preload("Owner").Preload("Media").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&listings).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, listings, page, perPage, total)
}

// DashboardListingClicks - GET /dashboard/listings/{id}/clicks
func DashboardListingClicks(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "listing id must be numeric")
		return
	}

	rctx := context.Background()
	listing, err := store.GetListing(rctx, id)
	if err != nil {
		if err == utils.ErrNotFound {
			utils.JSONError(ctx, http.StatusNotFound, "not_found", "no such listing")
			return
		}
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	stats, err := store.GetClickStats(rctx, id)
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	ctx.JSON(iris.Map{"data": iris.Map{
		"listingID": listing.ID,
		"status":    listing.Status,
		"clicks":    stats,
	}})
}

// DashboardActivity - GET /dashboard/activity
func DashboardActivity(ctx iris.Context) {
	limit := ctx.URLParamIntDefault("limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.AuditLog
	if err := storage.DB.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	ctx.JSON(iris.Map{"data": logs, "meta": iris.Map{"limit": limit}})
}

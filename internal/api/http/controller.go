package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/blobindexer/syncer/internal/app"
	"github.com/blobindexer/syncer/internal/core"
)

// @title      		blob stats syncer
// @version         0.0.1
// @description     Serves blob, block and transaction statistics aggregated from indexed blocks.

// @license.name  	Apache 2.0
// @license.url   	http://www.apache.org/licenses/LICENSE-2.0.html

// @host      		localhost
// @BasePath  		/api/v1
// @schemes 		http

var basePath = "/api/v1"

var _ QueryController = (*Controller)(nil)

type Controller struct {
	svc app.QueryService
}

func NewController(svc app.QueryService) *Controller {
	return &Controller{svc: svc}
}

func paramErr(ctx *gin.Context, param string, err error) {
	ctx.IndentedJSON(http.StatusBadRequest, gin.H{"param": param, "error": err.Error()})
}

func svcErr(ctx *gin.Context, err error) {
	if errors.Is(err, core.ErrNotFound) {
		ctx.IndentedJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, core.ErrInvalidArg) {
		ctx.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Error().Str("path", ctx.FullPath()).Err(err).Msg("internal server error")
	ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// GetStatistics godoc
//	@Summary		statistics
//	@Description	Returns counters of the indexed data and the sync progress
//	@Tags			statistics
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	repository.Statistics
//	@Failure		500		{object}	map[string]string
//	@Router			/statistics [get]
func (c *Controller) GetStatistics(ctx *gin.Context) {
	ret, err := c.svc.GetStatistics(ctx)
	if err != nil {
		svcErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetSyncState godoc
//	@Summary		sync state
//	@Description	Returns the last finalized and the last aggregated block
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	core.SyncState
//	@Failure		404		{object}	map[string]string
//	@Router			/sync [get]
func (c *Controller) GetSyncState(ctx *gin.Context) {
	ret, err := c.svc.GetSyncState(ctx)
	if err != nil {
		svcErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetOverallStats godoc
//	@Summary		overall stats
//	@Description	Returns cumulative stats of every kind, null until the first aggregation
//	@Tags			stats
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	app.OverallStats
//	@Failure		500		{object}	map[string]string
//	@Router			/stats/overall [get]
func (c *Controller) GetOverallStats(ctx *gin.Context) {
	ret, err := c.svc.GetOverallStats(ctx)
	if err != nil {
		svcErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetDailyStats godoc
//	@Summary		daily stats
//	@Description	Returns the daily stats of one kind, from and to are inclusive days, to defaults to today
//	@Tags			stats
//	@Accept			json
//	@Produce		json
//  @Param   		kind		path	string	true	"stats kind"	Enums(blob, block, transaction)
//  @Param   		from		query	string	false	"first day, YYYY-MM-DD"
//  @Param   		to			query	string	false	"last day, YYYY-MM-DD"
//	@Success		200		{object}	app.DailyStats
//	@Failure		400		{object}	map[string]string
//	@Router			/stats/daily/{kind} [get]
func (c *Controller) GetDailyStats(ctx *gin.Context) {
	kind, err := core.ParseStatsKind(ctx.Param("kind"))
	if err != nil {
		paramErr(ctx, "kind", err)
		return
	}

	from, err := parseDay(ctx.Query("from"))
	if err != nil {
		paramErr(ctx, "from", err)
		return
	}
	to, err := parseDay(ctx.Query("to"))
	if err != nil {
		paramErr(ctx, "to", err)
		return
	}

	r := core.DayRange{From: from, To: core.Day(time.Now())}
	if to != nil {
		r.To = *to
	}

	ret, err := c.svc.GetDailyStats(ctx, kind, r)
	if err != nil {
		svcErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetJobs godoc
//	@Summary		syncer jobs
//	@Description	Returns repeatable jobs registered by the stats syncer
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Success		200		{array}		queue.RepeatableJob
//	@Failure		500		{object}	map[string]string
//	@Router			/jobs [get]
func (c *Controller) GetJobs(ctx *gin.Context) {
	ret, err := c.svc.GetJobs(ctx)
	if err != nil {
		svcErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

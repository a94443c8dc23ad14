package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-dashboard/core/dashboard"
	"github.com/trezcool/masomo-dashboard/core/user"
)

const (
	streamKeepAlive       = 30 * time.Second
	defaultRefreshTimeout = 30 * time.Second
)

type (
	dashboardResponse struct {
		Greeting string `json:"greeting"`
		dashboard.State
		LastError string `json:"last_error,omitempty"`
	}

	feedResponse struct {
		Window  dashboard.TimeWindow  `json:"window"`
		Entries []dashboard.FeedEntry `json:"entries"`
	}

	windowQuery struct {
		Window string `query:"window" json:"window" validate:"omitempty,timewindow"`
	}

	digestResponse struct {
		Recipient string `json:"recipient"`
	}
)

func newDashboardResponse(prof user.Profile, st dashboard.State) dashboardResponse {
	res := dashboardResponse{
		Greeting: "Welcome back, " + prof.FirstName(),
		State:    st,
	}
	if st.LastError != nil {
		res.LastError = st.LastError.Error()
	}
	return res
}

func (s *Server) registerDashboardAPI(group *echo.Group, jwt echo.MiddlewareFunc) {
	dash := group.Group("/dashboard", jwt, dashboardMiddleware)
	dash.GET("", s.getDashboard)
	dash.POST("/refresh", s.refreshDashboard)
	dash.GET("/feed", s.getFeed)
	dash.GET("/stream", s.streamDashboard)
	dash.POST("/digest", s.sendDigest)

	admin := group.Group("/admin/dashboards", jwt, adminMiddleware())
	admin.POST("/refresh", s.refreshAllDashboards)
}

func (s *Server) openDashboard(ctx echo.Context) (user.Profile, *dashboard.Aggregator, error) {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return prof, nil, errors.Wrap(err, "getting context profile")
	}
	loadCtx, cancel := s.loadContext()
	defer cancel()
	// provider failures are reported in the state
	agg, _ := s.Sessions.Open(loadCtx, prof.ID)
	return prof, agg, nil
}

// loadContext is detached from the request, bounded by the refresh timeout.
// A load updates the state shared by every viewer of the dashboard.
func (s *Server) loadContext() (context.Context, context.CancelFunc) {
	timeout := s.Conf.Dashboard.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *Server) window(raw string) dashboard.TimeWindow {
	if raw == "" {
		raw = s.Conf.Dashboard.DefaultWindow
	}
	w, err := dashboard.ParseTimeWindow(raw)
	if err != nil {
		return dashboard.WindowWeek
	}
	return w
}

func (s *Server) bindWindow(ctx echo.Context) (dashboard.TimeWindow, error) {
	var q windowQuery
	if err := ctx.Bind(&q); err != nil {
		return "", err
	}
	if err := ctx.Validate(q); err != nil {
		return "", err
	}
	return s.window(q.Window), nil
}

func (s *Server) getDashboard(ctx echo.Context) error {
	prof, agg, err := s.openDashboard(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDashboardResponse(prof, agg.State()))
}

func (s *Server) refreshDashboard(ctx echo.Context) error {
	prof, agg, err := s.openDashboard(ctx)
	if err != nil {
		return err
	}
	loadCtx, cancel := s.loadContext()
	defer cancel()
	if err = agg.Refresh(loadCtx); err != nil && err != dashboard.ErrSuperseded {
		s.Logger.Warn("dashboard: refresh failed", err, prof)
	}
	return ctx.JSON(http.StatusOK, newDashboardResponse(prof, agg.State()))
}

func (s *Server) getFeed(ctx echo.Context) error {
	w, err := s.bindWindow(ctx)
	if err != nil {
		return err
	}
	_, agg, err := s.openDashboard(ctx)
	if err != nil {
		return err
	}
	entries := dashboard.BuildFeed(w, agg.State().WorkItems, s.Now(), s.Conf.Dashboard.DateLayout)
	return ctx.JSON(http.StatusOK, feedResponse{Window: w, Entries: entries})
}

func (s *Server) sendDigest(ctx echo.Context) error {
	w, err := s.bindWindow(ctx)
	if err != nil {
		return err
	}
	prof, agg, err := s.openDashboard(ctx)
	if err != nil {
		return err
	}
	msg, err := dashboard.BuildDigest(prof, agg.State(), w, s.Now(), s.Conf.Dashboard.DateLayout)
	if err != nil {
		if err == dashboard.ErrNoRecipient {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return errors.Wrap(err, "building digest")
	}
	s.MailSvc.SendMessages(msg)
	return ctx.JSON(http.StatusAccepted, digestResponse{Recipient: prof.Email})
}

func (s *Server) refreshAllDashboards(ctx echo.Context) error {
	loadCtx, cancel := s.loadContext()
	defer cancel()
	if err := s.Sessions.RefreshAll(loadCtx); err != nil {
		s.Logger.Warn("dashboard: refresh all", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// streamDashboard pushes the dashboard state as server-sent events until the client goes away.
func (s *Server) streamDashboard(ctx echo.Context) error {
	prof, agg, err := s.openDashboard(ctx)
	if err != nil {
		return err
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	reqCtx := ctx.Request().Context()
	states := agg.Watch(reqCtx)
	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case st, ok := <-states:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(newDashboardResponse(prof, st))
			if err != nil {
				return errors.Wrap(err, "encoding dashboard state")
			}
			if _, err = fmt.Fprintf(res, "event: state\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			res.Flush()
		case <-keepAlive.C:
			if _, err = fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case <-reqCtx.Done():
			return nil
		}
	}
}

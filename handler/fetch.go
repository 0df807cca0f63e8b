package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ewintr.nl/chanwatch/model"
	"golang.org/x/exp/slog"
)

type CycleRunner interface {
	Run(ctx context.Context, channelIDs []model.YoutubeChannelID) (model.CycleResult, error)
}

// FetchAPI runs one fetch cycle over the configured channels per request.
type FetchAPI struct {
	cycle      CycleRunner
	channelIDs []model.YoutubeChannelID
	logger     *slog.Logger
}

func NewFetchAPI(cycle CycleRunner, channelIDs []model.YoutubeChannelID, logger *slog.Logger) *FetchAPI {
	return &FetchAPI{
		cycle:      cycle,
		channelIDs: channelIDs,
		logger:     logger,
	}
}

func (f *FetchAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodPost && sub == "":
		f.Fetch(w, r)
	case sub == "":
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("use POST to start a fetch"))
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the fetch api", r.Method, sub))
	}
}

func (f *FetchAPI) Fetch(w http.ResponseWriter, r *http.Request) {
	res, err := f.cycle.Run(r.Context(), f.channelIDs)
	switch {
	case errors.Is(err, model.ErrConfiguration):
		f.returnErr(w, http.StatusBadRequest, "missing YOUTUBE_API_KEY or CHANNEL_IDS", err)
		return
	case err != nil:
		f.returnErr(w, http.StatusInternalServerError, "could not run fetch", err)
		return
	}

	JSON(w, http.StatusOK, res)
}

func (f *FetchAPI) returnErr(w http.ResponseWriter, status int, message string, err error) {
	f.logger.Error(message, slog.Int("status", status), slog.String("err", err.Error()))
	Error(w, status, message, err)
}

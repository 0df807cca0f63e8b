package model

import (
	"encoding/json"
	"errors"
)

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrStorage           = errors.New("storage error")
)

type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindNetwork       ErrorKind = "network"
	KindMalformed     ErrorKind = "malformed_response"
	KindStorage       ErrorKind = "storage"
	KindUnknown       ErrorKind = "unknown"
)

func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}

// Failure is the error marker reported in place of a channel's videos.
type Failure struct {
	YoutubeChannelID YoutubeChannelID `json:"channelId"`
	Error            string           `json:"error"`
	Kind             ErrorKind        `json:"kind"`
}

// PollResult holds either the videos of one channel or the error that
// prevented polling it, never both.
type PollResult struct {
	ChannelID YoutubeChannelID
	Videos    []*Video
	Err       error
}

func (p PollResult) Failed() bool {
	return p.Err != nil
}

func (p PollResult) Failure() Failure {
	return Failure{
		YoutubeChannelID: p.ChannelID,
		Error:            p.Err.Error(),
		Kind:             KindOf(p.Err),
	}
}

// Item is one entry of a cycle response: a video or a failure.
type Item struct {
	Video   *Video
	Failure *Failure
}

func (i Item) MarshalJSON() ([]byte, error) {
	if i.Failure != nil {
		return json.Marshal(i.Failure)
	}

	return json.Marshal(i.Video)
}

type CycleResult struct {
	Count int    `json:"count"`
	Items []Item `json:"items"`
}

func (c *CycleResult) Add(result PollResult) {
	if result.Failed() {
		f := result.Failure()
		c.Items = append(c.Items, Item{Failure: &f})
	} else {
		for _, v := range result.Videos {
			c.Items = append(c.Items, Item{Video: v})
		}
	}
	c.Count = len(c.Items)
}

package main

import (
	"time"
)

type ServerTimeRetriever interface {
	Retrieve() (currTime string, err error)
}

type ServerTimeClient struct {
	now func() time.Time
}

func (client *ServerTimeClient) Retrieve() (currTime string, err error) {
	now := time.Now
	if client.now != nil {
		now = client.now
	}
	return now().UTC().Format(time.RFC3339), nil
}

package health

import "context"

// IndexPinger checks record index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// StorePinger checks relational store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

package model

import "time"

// Signal is the classifier's verdict for one symbol on one date.
type Signal struct {
	Symbol     string
	Date       time.Time
	Buy        bool
	Sell       bool
	BuyReason  string
	SellReason string

	// Snapshot of the inputs, carried for admission ranking and alerting.
	Price       float64
	RSI         float64
	WilliamsR   float64
	VolumeRatio float64
	MARatio     float64
}

package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// loadBarsCSV reads OHLCV bars from a CSV file with a
// timestamp,open,high,low,close,volume header. Timestamps are RFC 3339.
func loadBarsCSV(path string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeNoMarketData, err, "opening bar file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeNoMarketData, err, "reading header of %s", path)
	}
	if len(header) < 6 {
		return nil, errors.Newf(errors.ErrCodeNoMarketData, "%s: expected timestamp,open,high,low,close,volume columns", path)
	}

	var bars []types.Bar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeNoMarketData, err, "reading %s", path)
		}

		bar, err := parseBar(record)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeNoMarketData, err, "%s line %d", path, len(bars)+2)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(record []string) (types.Bar, error) {
	ts, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return types.Bar{}, err
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		fields[i], err = strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return types.Bar{}, err
		}
	}

	return types.Bar{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

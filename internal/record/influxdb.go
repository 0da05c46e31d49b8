package record

import (
	"context"
	"fmt"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"nvoc/internal/util"
)

type InfluxDBRecorder struct {
	client      influxdb2.Client
	org         string
	bucket      string
	measurement string
}

func NewInfluxDBRecorder(cfg *util.InfluxDBConfig) (*InfluxDBRecorder, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping InfluxDB: %w", err)
	}

	return &InfluxDBRecorder{
		client:      client,
		org:         cfg.Org,
		bucket:      cfg.Bucket,
		measurement: cfg.Measurement,
	}, nil
}

func (r *InfluxDBRecorder) Record(entries []Entry) error {
	writeAPI := r.client.WriteAPIBlocking(r.org, r.bucket)

	ctx := context.Background()
	for _, e := range entries {
		tags := map[string]string{
			"device_index": strconv.Itoa(e.DeviceIndex),
			"device_name":  e.DeviceName,
			"command":      e.Command,
			"operation":    e.Operation,
		}
		fields := map[string]interface{}{
			"detail": e.Detail,
			"ok":     e.OK,
			"reason": e.Reason,
		}

		p := influxdb2.NewPoint(r.measurement, tags, fields, e.Time)
		if err := writeAPI.WritePoint(ctx, p); err != nil {
			return fmt.Errorf("failed to write history point: %w", err)
		}
	}

	return nil
}

func (r *InfluxDBRecorder) Close() error {
	r.client.Close()
	return nil
}

// Package influxdb records executor metrics in InfluxDB v2.
//
// Measurements:
//
//	sqlitelib_batch      tags database, outcome; fields statements, failed_index, duration_ms
//	sqlitelib_statement  tags database, operation; fields failures, lock_contention
//
// Writes go through the non-blocking batched write API and never delay the
// executor. Asynchronous write failures are delivered to SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics off
//	}
//	defer client.Close()
package influxdb

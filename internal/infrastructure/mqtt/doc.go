// Package mqtt publishes executor events to an MQTT broker.
//
// Two event streams exist, one topic per database:
//
//	sqlitelib/<database>/crash   crash report written (CrashNotification)
//	sqlitelib/<database>/batch   batch finished (BatchNotification)
//
// The client also keeps a retained online/offline status on
// sqlitelib/system/status, backed by a Last Will so that a crashed process
// is reported as offline by the broker.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	exec.SetOnCrashReport(func(r crashreport.Report, path string) {
//	    _ = client.PublishCrashReport(exec.Name(), r, path)
//	})
//
// Publishing is best effort: the executor never waits on the broker beyond
// the publish timeout, and a disconnected client returns ErrNotConnected.
package mqtt

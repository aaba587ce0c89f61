package mqtt

import "fmt"

// TopicPrefix is the root of every sqlitelib topic.
const TopicPrefix = "sqlitelib"

// Topics provides builders for sqlitelib MQTT topics.
//
//	crashTopic := mqtt.Topics{}.Crash("inventory")
//	// Returns: "sqlitelib/inventory/crash"
type Topics struct{}

// SystemStatus returns the retained online/offline status topic.
//
// Example: sqlitelib/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// Crash returns the topic crash reports for a database are announced on.
//
// Example: sqlitelib/inventory/crash
func (Topics) Crash(database string) string {
	return fmt.Sprintf("%s/%s/crash", TopicPrefix, database)
}

// Batch returns the topic batch outcomes for a database are announced on.
//
// Example: sqlitelib/inventory/batch
func (Topics) Batch(database string) string {
	return fmt.Sprintf("%s/%s/batch", TopicPrefix, database)
}

// AllCrashes returns a wildcard matching every database's crash topic.
//
// Pattern: sqlitelib/+/crash
func (Topics) AllCrashes() string {
	return TopicPrefix + "/+/crash"
}

// AllBatches returns a wildcard matching every database's batch topic.
//
// Pattern: sqlitelib/+/batch
func (Topics) AllBatches() string {
	return TopicPrefix + "/+/batch"
}

// AllTopics returns a wildcard matching all sqlitelib topics.
//
// Pattern: sqlitelib/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

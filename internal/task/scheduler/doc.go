// Package scheduler parses schedule strings (cron, interval, HH:MM) and
// triggers a single job on robfig/cron, skipping overlapping runs.
package scheduler

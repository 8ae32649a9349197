// Package scheduler triggers named jobs at fixed intervals and
// hands each trigger to the task engine, which owns execution.
package scheduler

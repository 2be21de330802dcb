// Package laik implements distributed data containers with dynamic
// re-partitioning: a shared index space, pluggable partitioners that
// assign ranges of that space to workers, and data containers that bind
// to a partitioning and move their contents when the partitioning
// changes.
//
// The programming model is SPMD: every worker in a group runs the same
// control flow and calls the same collective operations (switch_to in
// particular) in the same order.
package laik

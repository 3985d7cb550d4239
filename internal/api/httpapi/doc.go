// Package httpapi serves the panel's health, status and metrics over HTTP, and accepts simulated faults.
package httpapi

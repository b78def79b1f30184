// Package internaldefs holds the metric families, sample labels and histogram
// bounds shared by the Prometheus and OTel exporters, so both expose the same
// series.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs

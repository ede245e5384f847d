// Package plasma holds the physical constants, device geometry and the
// cold-plasma dispersion relation used by the reflectometry engine.
//
//   - [CriticalDensity]: O-mode cutoff density for a probe frequency
//   - [CriticalFrequency]: inverse of CriticalDensity
//   - [Geometry]: plasma minor radius and wall distance of a device
//
// Fundamental constants are untyped SI constants. Geometry varies per
// device and is always supplied by configuration.
package plasma

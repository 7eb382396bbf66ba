// Package config collects the knobs mesh.Mesh's Begin and protocol
// timeouts otherwise take as positional parameters into one typed,
// YAML-loadable struct, the way the teacher's cmd/ front-ends load a
// device config file.
package config

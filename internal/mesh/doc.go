// Package mesh is the scene graph shared by print validation and STL export:
// a list of indexed triangle meshes with optional per-vertex normals.
//
// Scene units are centimeters with +Z up (print orientation). Callers own
// their scenes; functions here either read a scene or work on a Clone.
//
// Inspect is the one geometry-integrity pass. The print validator and the
// exporter's sanity check both report from its IntegrityReport.
package mesh

package main

// DBUSPath and DBUSInterface identify where the engine is exported on the
// session bus, matching the original service's org.karapace.Manager1.
const (
	DBUSPath      = "/org/karapace/Manager1"
	DBUSInterface = "org.karapace.Manager1"
	APIVersion    = 1
)

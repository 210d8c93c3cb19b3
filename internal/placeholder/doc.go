// Package placeholder substitutes "${NAME}" and "#{name}" style references in
// configuration values. A value with a malformed or unknown reference is kept
// verbatim.
package placeholder

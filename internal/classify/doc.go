// Package classify maps raw form-field attributes to semantic roles.
// Classification is driven by multilingual keyword tables and a small
// fallback heuristic chain, and is a pure function of the field's
// attributes.
package classify

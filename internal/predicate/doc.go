// Package predicate holds the named checks that schemas reference through
// custom keywords: existsFile, existsDir and existsTemplate. A predicate takes
// the keyword's value from the schema (the expected polarity) and the string
// being validated, and reports whether the check holds.
package predicate

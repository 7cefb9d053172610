// Package policy holds the pure pricing and plan rules: credit cost of a job,
// affordability, template eligibility and the voice catalog shown per plan.
// Nothing in this package performs I/O.
package policy

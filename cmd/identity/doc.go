// Package identity implements lablink's principal store.
//
// A principal is either an individual User or a Company account; the two are
// unrelated rows that share nothing but a numeric id and a kind tag. The
// session layer references principals exclusively by (id, kind) and resolves
// them through the Store interface.
//
// Users additionally carry linked federated identities: a numeric kakao_id
// and/or a google_email column, one column per provider.
package identity

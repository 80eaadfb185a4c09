// Package elastic implements storage.Index on Elasticsearch 8.
//
// Documents are indexed by aid with their embedding in a cosine dense_vector
// field named text_vector. Vector search is a script_score query scoring
// cosineSimilarity + 1.0 over documents that have a vector, with one should
// match clause per entity filter so matches raise the score without
// excluding anything.
package elastic

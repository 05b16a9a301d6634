// Package nettree implements the Neural Evaluation Tree (NET), a
// hierarchical multi-scale decomposition of the transfer-impedance
// matrix of a passive dendritic tree. Each node integrates a set of
// input locations and carries an impedance kernel; the (i,j) entry of
// the impedance matrix is the sum of the steady-state kernel values
// over all nodes whose location set contains both i and j.
//
// The package provides projection onto a location subset, impedance
// matrix reconstruction, segregation-index queries, the
// compartmentalization algorithm, kernel amplitude correction against
// a reference matrix, and the conductance rescale sweep.
package nettree

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package network

// Link is a declared connection from one group into another.
type Link struct {
	From  *Group
	To    *Group
	Label string
}

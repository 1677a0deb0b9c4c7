// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package services adapts feedcore components to suture.Service.
//
// Each wrapper turns a component lifecycle (ListenAndServe, a scheduled
// task) into a context-driven Serve method and names itself through
// fmt.Stringer so suture events identify it.
package services

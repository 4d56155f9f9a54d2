// Package kernel provides core domain primitives shared across the
// coordination core.
//
// It includes:
//   - UUID: a value object for entity identifiers with validation
//   - GeoPoint: a validated latitude/longitude pair with haversine distance
//     and travel-time estimation
//   - Role and Actor: the authenticated caller identity consumed by every
//     operation
//   - DeliveryClass: the agent capability class that determines matching radius
//
// All primitives are immutable value objects. Invalid states are unreachable:
// constructors validate their inputs and the zero values fail validation.
package kernel

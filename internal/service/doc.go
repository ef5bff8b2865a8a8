// Package service contains the application-specific use cases of the task
// engine. It orchestrates interactions between domain objects and
// repositories (defined in internal/store) to fulfill application features.
//
// Key components:
//
// 1. Service Interfaces:
//   - TaskService covers creation, lifecycle transitions, edits, chain
//     audits, overdue listings, and administrative deletion
//   - The followup subpackage owns successor generation for recurring tasks
//
// 2. Use Case Implementations:
//   - Apply transactional boundaries when operations span multiple writes
//   - Enforce application-level rules that span multiple domain entities,
//     such as prospect existence at creation time
//
// 3. Dependency Management:
//   - Services receive dependencies through constructor injection
//   - Repository interfaces are defined here, consumer-side, and satisfied
//     by thin adapters over the store implementations
//
// 4. Error Handling:
//   - Store-level errors are translated to service-level sentinels
//   - Unexpected failures are wrapped in TaskServiceError with the failed
//     operation attached
//
// The service layer depends on domain entities and repository interfaces,
// never on specific infrastructure implementations.
package service

// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package proxy provides the HTTP surface of the snow route finder. It maps
// three inbound routes to the third-party weather and directions services,
// attaching the configured credentials and relaying each upstream JSON
// response verbatim, upstream error payloads included.
package proxy
